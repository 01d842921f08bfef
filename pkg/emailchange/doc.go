// Package emailchange implements the two-phase email mutation for an
// account: stage a pending address, confirm it with a single-use token, or
// cancel before confirmation. Duplicate detection against other accounts'
// confirmed addresses is case-insensitive and enforced both when staging and
// again at promotion time.
package emailchange
