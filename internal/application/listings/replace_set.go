package listings

// ReplaceSet computes the row operations for a full-replacement update of a
// repeatable sub-collection: every existing row is deleted, every submitted
// row is inserted. Deliberately not a diff — re-running an edit with the same
// payload converges to the same stored state.
func ReplaceSet[T any](existing, next []T) (toDelete, toInsert []T) {
	return existing, next
}
