package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func main() {
	ctx := context.Background()

	host := flag.String("host", "localhost:8085", "emulator host")
	projectID := flag.String("project", "s2-exporter-emulator", "emulator project")
	topic := flag.String("topic", "s2-exports", "topic of the export jobs")
	subscription := flag.String("subscription", "s2-exports-worker", "subscription of the export workers")
	flag.Parse()

	os.Setenv("PUBSUB_EMULATOR_HOST", *host)

	log.Print("New client for project " + *projectID)
	client, err := pubsub.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("pubsub.NewClient: %v", err)
	}
	defer client.Close()

	log.Print("Create Topic : " + *topic)
	if _, err = client.CreateTopic(ctx, *topic); err != nil && status.Code(err) != codes.AlreadyExists {
		log.Fatalf("pubsub.CreateTopic: %v", err)
	}

	log.Print("Create Subscription : " + *subscription)
	if _, err = client.CreateSubscription(ctx, *subscription, pubsub.SubscriptionConfig{
		Topic:       client.Topic(*topic),
		AckDeadline: 60 * time.Second,
	}); err != nil && status.Code(err) != codes.AlreadyExists {
		log.Fatalf("CreateSubscription: %v", err)
	}

	log.Print("Done!")
}
