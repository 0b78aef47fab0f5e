//go:build !nocrypto

package cryptox

const compiledIn = true
