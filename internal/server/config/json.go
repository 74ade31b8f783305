package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/civicdeck/backend/internal/flagx"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. The hydration interval is carried as whole minutes so the
// file stays plain JSON numbers.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	MongoURI                 string `json:"mongo_uri"`
	MongoDatabase            string `json:"mongo_database"`
	DatabaseDSN              string `json:"database_dsn"`
	RedisAddr                string `json:"redis_addr"`
	RedisPassword            string `json:"redis_password"`
	RedisDB                  int    `json:"redis_db"`
	KafkaBrokers             string `json:"kafka_brokers"`
	KafkaTopic               string `json:"kafka_topic"`
	SQSQueueURL              string `json:"sqs_queue_url"`
	FedOfficialsTable        string `json:"fed_officials_table"`
	S3Bucket                 string `json:"s3_bucket"`
	AWSRegion                string `json:"aws_region"`
	AWSBaseEndpoint          string `json:"aws_base_endpoint"`
	AWSAccessKey             string `json:"aws_access_key"`
	AWSSecretKey             string `json:"aws_secret_key"`
	HydrationIntervalMinutes int    `json:"hydration_interval_minutes"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// If the file path is found, parseJson attempts to read and unmarshal it
// into a JsonConfig. The resulting values are copied into the target Config.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.MongoURI = c.MongoURI
	config.MongoDatabase = c.MongoDatabase
	config.DatabaseDSN = c.DatabaseDSN
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.RedisDB = c.RedisDB
	config.KafkaBrokers = c.KafkaBrokers
	config.KafkaTopic = c.KafkaTopic
	config.SQSQueueURL = c.SQSQueueURL
	config.FedOfficialsTable = c.FedOfficialsTable
	config.S3Bucket = c.S3Bucket
	config.AWSRegion = c.AWSRegion
	config.AWSBaseEndpoint = c.AWSBaseEndpoint
	config.AWSAccessKey = c.AWSAccessKey
	config.AWSSecretKey = c.AWSSecretKey
	config.HydrationInterval = time.Duration(c.HydrationIntervalMinutes) * time.Minute
}
