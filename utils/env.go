package utils

import (
	"os"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	godotenv.Load()
}

// StorefrontName is the store name the gateway acknowledgement carries on
// its second line.
func StorefrontName() string {
	name := os.Getenv("STOREFRONT_NAME")
	if name == "" {
		name = "WebStore"
	}
	return name
}

// StoreURL is the absolute base URL shoppers return to after paying.
func StoreURL() string {
	u := os.Getenv("STORE_URL")
	if u == "" {
		u = "http://localhost:8080/"
	}
	return u
}
