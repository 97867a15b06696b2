package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"siena/db"
	"siena/globals"
	"siena/middleware"
	"siena/models"
	"siena/utils"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

// Login authenticates a staff account and issues a short-lived token for the
// back-office booking views.
func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Username == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var staff models.Staff
	if err := db.StaffCollection.FindOne(ctx, bson.M{"username": input.Username}).Decode(&staff); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(input.Password)); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	claims := &middleware.Claims{
		Username: staff.Username,
		UserID:   staff.UserID,
		Role:     staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"token": token, "username": staff.Username})
}

// SeedStaff creates the initial staff account from STAFF_USERNAME and
// STAFF_PASSWORD when the collection is empty.
func SeedStaff(ctx context.Context, username, password string) {
	if username == "" || password == "" {
		return
	}

	count, err := db.StaffCollection.CountDocuments(ctx, bson.M{})
	if err != nil || count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("auth: hashing seed password failed: %v", err)
		return
	}

	staff := models.Staff{
		UserID:       "st" + utils.GenerateRandomDigitString(10),
		Username:     username,
		PasswordHash: string(hash),
		Role:         []string{"staff"},
		CreatedAt:    time.Now(),
	}
	if _, err := db.StaffCollection.InsertOne(ctx, staff); err != nil {
		log.Printf("auth: seeding staff account failed: %v", err)
	}
}
