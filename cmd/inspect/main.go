// Command inspect renders stored message history as a table. It opens
// the store read-only with the lock guard bypassed, so it can run while
// the server holds the write lock.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"chat-relay/domain"
)

type config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
}

type storedMessage struct {
	Sender    string      `json:"sender"`
	Recipient string      `json:"recipient"`
	Body      string      `json:"body"`
	Mood      domain.Mood `json:"mood"`
	At        int64       `json:"at"`
}

func main() {
	_ = godotenv.Load()
	var cfg config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Usage: inspect [user peer]
	prefix := "msg:"
	if len(os.Args) == 3 {
		prefix = fmt.Sprintf("msg:%s:", domain.NewPairKey(os.Args[1], os.Args[2]))
	}

	opts := badger.DefaultOptions(cfg.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Sender", "Recipient", "Mood", "Message"})
	table.SetBorder(false)

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var m storedMessage
				if err := json.Unmarshal(value, &m); err != nil {
					return err
				}
				table.Append([]string{
					time.Unix(0, m.At).UTC().Format(time.RFC3339),
					m.Sender,
					m.Recipient,
					colorizeMood(m.Mood),
					m.Body,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read history: %v", err)
	}

	table.Render()
	color.Greenln(fmt.Sprintf("%d message(s)", count))
}

func colorizeMood(mood domain.Mood) string {
	switch mood {
	case domain.MoodHappy:
		return color.Green.Sprint(mood)
	case domain.MoodSad:
		return color.Blue.Sprint(mood)
	case domain.MoodAngry:
		return color.Red.Sprint(mood)
	default:
		return string(mood)
	}
}
