/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/barklazza/projeto-vendas/cmd"

func main() {
	cmd.Execute()
}
