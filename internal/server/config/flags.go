package config

import (
	"flag"
	"os"
	"time"

	"github.com/civicdeck/backend/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-m string   Mongo URI (e.g., "mongodb://127.0.0.1:27017")
//	-n string   Mongo database name
//	-d string   PostgreSQL DSN
//	-r string   Redis address
//	-k string   Kafka brokers, comma-separated
//	-t string   Kafka swipe topic
//	-q string   SQS hydration queue URL
//	-f string   DynamoDB fed officials table
//	-b string   S3 archive bucket
//	-g string   AWS region
//	-e string   AWS base endpoint (e.g., "http://127.0.0.1:4566/")
//	-u string   AWS access key
//	-p string   AWS secret key
//	-i int      hydration interval, minutes
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The interval flag is accepted as an integer in minutes and then
//     converted to a time.Duration value.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-m", "-n", "-d", "-r", "-k", "-t", "-q", "-f", "-b", "-g", "-e", "-u", "-p", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "mongo URI")
	fs.StringVar(&config.MongoDatabase, "n", config.MongoDatabase, "mongo database name")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.KafkaBrokers, "k", config.KafkaBrokers, "kafka brokers, comma-separated")
	fs.StringVar(&config.KafkaTopic, "t", config.KafkaTopic, "kafka swipe topic")
	fs.StringVar(&config.SQSQueueURL, "q", config.SQSQueueURL, "SQS hydration queue URL")
	fs.StringVar(&config.FedOfficialsTable, "f", config.FedOfficialsTable, "dynamo fed officials table")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.AWSBaseEndpoint, "e", config.AWSBaseEndpoint, "AWS base endpoint")
	fs.StringVar(&config.AWSAccessKey, "u", config.AWSAccessKey, "AWS access key")
	fs.StringVar(&config.AWSSecretKey, "p", config.AWSSecretKey, "AWS secret key")

	hydrationInterval := fs.Int("i", int(config.HydrationInterval.Minutes()), "hydration_interval (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.HydrationInterval = time.Duration(*hydrationInterval) * time.Minute
}
