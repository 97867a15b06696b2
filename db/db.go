package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UnitsCollection       *mongo.Collection
	BookingsCollection    *mongo.Collection
	StaffCollection       *mongo.Collection
	IdempotencyCollection *mongo.Collection
	Client                *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	UnitsCollection = Client.Database("sienadb").Collection("units")
	BookingsCollection = Client.Database("sienadb").Collection("bookings")
	StaffCollection = Client.Database("sienadb").Collection("staff")
	IdempotencyCollection = Client.Database("sienadb").Collection("idempotency")
}

// EnsureIndexes creates the indexes the booking pipeline relies on. The unique
// index on transactionId is what makes Recorder.Persist idempotent.
func EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := BookingsCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"transactionId": 1},
			Options: options.Index().SetUnique(true).SetName("unique_transaction"),
		},
		{
			Keys:    bson.M{"createdAt": -1},
			Options: options.Index().SetName("created_desc"),
		},
	})
	if err != nil {
		return err
	}

	_, err = IdempotencyCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"key": 1},
			Options: options.Index().SetUnique(true).SetName("unique_key"),
		},
		{
			Keys:    bson.M{"expires_at": 1},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	})
	if err != nil {
		return err
	}

	_, err = StaffCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"username": 1},
		Options: options.Index().SetUnique(true).SetName("unique_username"),
	})
	return err
}
