// Package bindings holds the generated binding of the factory interface.
// XFactory.abi.json is the source; regenerate factory.go after editing it.
package bindings

//go:generate go run github.com/ethereum/go-ethereum/cmd/abigen --v2 --abi XFactory.abi.json --pkg bindings --type XFactory --out factory.go
