package offer

// Authorize allows a mutation of o only by its owner. Identity is the user id,
// never the bearer token.
func Authorize(actorID string, o Offer) error {
	if actorID == "" || actorID != o.OwnerID {
		return ErrForbidden
	}

	return nil
}
