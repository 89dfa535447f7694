package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// Polls the users endpoint until the service answers with OK. The service address can be set
// with the SERVICE_URL env variable.
//
// Usage example on the command line:
// > SERVICE_URL=http://localhost:8080 go run main.go
func main() {
	baseURL := os.Getenv("SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	totalWaitTime := 0
	for {
		res, err := http.Get(baseURL + "/users")
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				break
			}
			fmt.Println(res.Status)
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
