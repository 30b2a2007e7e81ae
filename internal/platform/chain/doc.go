// Package chain implements the minting.Minter interface against the
// chain relay service, which holds the minter key and submits the
// actual on-chain transaction.
package chain
