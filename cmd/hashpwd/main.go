package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nowestinterior/backend/pkg"
)

// small operator tool: print the bcrypt hash of a password, usable for
// inserting admin rows manually
func main() {
	password := flag.String("password", "", "password to hash")
	flag.Parse()

	if *password == "" {
		fmt.Println("usage: hashpwd -password <password>")
		os.Exit(1)
	}

	hash, err := pkg.HashPassword(*password)
	if err != nil {
		fmt.Printf("hash password: %s\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
