/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "photoscribe/cmd"

func main() {
	cmd.Execute()
}
