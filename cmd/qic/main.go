// Package main is the qic operator CLI: bulk download, cache
// administration and prayer times without the daemon.
package main

func main() {
	Execute()
}
