// Package main is the entry point for skinsim, a headless driver for the
// skinning pipeline: it loads an avatar, simulates frames and prints what the
// render side would draw.
package main

func main() {
	Execute()
}
