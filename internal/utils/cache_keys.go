package utils

import "strconv"

const OffersGenerationKey = "offers:gen"

func BuildOfferCacheKey(gen int64, id string) string {
	return "offers:item:v1:gen=" + strconv.FormatInt(gen, 10) + ":id=" + id
}

// BuildOfferSearchCacheKey expects params already normalized by the caller.
func BuildOfferSearchCacheKey(gen int64, params string) string {
	return "offers:search:v1:gen=" + strconv.FormatInt(gen, 10) + ":" + params
}
