package btree

// Delete is unimplemented: no part of the engine removes a key or
// reclaims a leaf's space. It always fails with Unimpl.
func (bt *BTree) Delete(key []byte) error {
	return newErr(Unimpl, "delete is not implemented")
}
