/*
Copyright © 2025 East GLH Bioinformatics
*/
package main

import "github.com/eastglh/dias-toolkit/cmd"

func main() {
	cmd.Execute()
}
