// Package r2 implements flower asset storage on Cloudflare R2 through
// its S3-compatible API.
package r2
