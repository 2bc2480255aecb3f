// Package notifier delivers rendered match notifications.
//
// Every channel implements Notifier and receives one Message per notable
// event. Slack, Telegram and Twitter post to chat services; Kafka and AMQP
// publish JSON documents for downstream consumers; DryRun prints to a writer.
// Multi fans a message out to several channels, Retrying retries transient
// failures with exponential backoff and Breaker stops calling a channel after
// repeated consecutive failures.
package notifier
