// Creates or updates an admin user for the settings API.
//
// Usage: admintool -email admin@example.com -password s3cret
package main

import (
	"flag"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/improvgroup/uniteller-payments/utils"
	"github.com/improvgroup/uniteller-payments/web/db"
)

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatalln("both -email and -password are required")
	}

	utils.LoadEnv()
	db.Connect()
	db.Sync()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 10)
	if err != nil {
		log.Fatalln("Failed to hash password:", err)
	}

	var admin db.AdminUser
	db.DB.FirstOrInit(&admin, db.AdminUser{Email: *email})
	admin.Password = string(hash)

	if err := db.DB.Save(&admin).Error; err != nil {
		log.Fatalln("Failed to save admin user:", err)
	}
	log.Println("Admin user saved:", *email)
}
