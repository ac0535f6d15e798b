package domain

// Result is the outcome of one resolution: exactly one of Identity or Err is
// set.
type Result struct {
	Identity *Identity
	Err      *ResolutionError
}

// Success wraps a resolved identity.
func Success(identity *Identity) Result {
	return Result{Identity: identity}
}

// Failure wraps a classified error.
func Failure(err *ResolutionError) Result {
	return Result{Err: err}
}

// OK reports whether the resolution produced an identity.
func (r Result) OK() bool {
	return r.Err == nil && r.Identity != nil
}

// Error returns the failure as an error interface, or nil on success.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// FavoritesResult is the outcome of a favorites lookup.
type FavoritesResult struct {
	Favorites *UserFavorites
	Err       *ResolutionError
}

// OK reports whether favorites were resolved.
func (r FavoritesResult) OK() bool {
	return r.Err == nil && r.Favorites != nil
}

// Error returns the failure as an error interface, or nil on success.
func (r FavoritesResult) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}
