package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/geocoder89/marketplace/internal/domain/offer"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

const msgInvalidBody = "Invalid request body"

// Bind decodes a JSON, urlencoded or multipart body into out and answers 400 on failure.
func Bind(ctx *gin.Context, out any) bool {
	err := ctx.ShouldBind(out)

	if err != nil {
		message := msgInvalidBody
		if missingRequired(err) {
			message = offer.MsgMissingParameter
		}

		RespondBadRequest(ctx, message, bindErrorDetails(err, out))

		return false
	}

	return true
}

func missingRequired(err error) bool {
	var validationErrs validator.ValidationErrors

	if !errors.As(err, &validationErrs) {
		return false
	}

	for _, fe := range validationErrs {
		if fe.Tag() == "required" {
			return true
		}
	}

	return false
}

func bindErrorDetails(err error, out any) any {
	root := structType(out)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]FieldError, 0, len(validationErrs))

		for _, fe := range validationErrs {
			fields = append(fields, FieldError{
				Field:   wireName(root, fe.StructField()),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: ruleMessage(fe.Tag(), fe.Param()),
			})
		}

		return gin.H{"fields": fields}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	// encoding/json reports the wire name; form binding reports the Go name
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := wireName(root, strings.TrimSpace(typeErr.Field))

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			}},
		}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return gin.H{"reason": "body_too_large", "limit": maxBytesErr.Limit}
	}

	return gin.H{"reason": err.Error()}
}

func structType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	return t
}

// wireName maps a Go field name to its json tag. Request bodies here are flat.
func wireName(root reflect.Type, goName string) string {
	if root == nil || goName == "" {
		return goName
	}

	sf, ok := root.FieldByName(goName)
	if !ok {
		return goName
	}

	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return goName
	}

	return name
}

func ruleMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + param
	case "min":
		return "must be at least " + param
	case "uuid":
		return "must be a valid id"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
