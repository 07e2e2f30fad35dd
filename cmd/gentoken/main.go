// Test program to generate JWT tokens for a local development backend
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/testauth"
)

func main() {
	userID := flag.String("user", "test-user", "token subject")
	roles := flag.String("roles", "admin", "comma-separated roles")
	apiURL := flag.String("api-url", "http://localhost:3000", "backend base URL for the example command")
	flag.Parse()

	token, err := testauth.DevToken(*userID, strings.Split(*roles, ",")...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("JWT Token:")
	fmt.Println(token)
	fmt.Println("\nTest with:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' %s/events/\n", token, strings.TrimRight(*apiURL, "/"))
}
