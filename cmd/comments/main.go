// Package main is a small command-line client for the record store.
//
//	comments [-table NAME] <put|get|update|query|delete|drop|tables> [-owner ID] [-at UNIX] [-text TEXT]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sirupsen/logrus"

	"github.com/pricofy/translation-dispatcher/internal/config"
	"github.com/pricofy/translation-dispatcher/internal/logger"
	"github.com/pricofy/translation-dispatcher/internal/store"
)

var tableCommands = map[string]bool{
	"put": true, "get": true, "update": true, "query": true, "delete": true, "drop": true,
}

var errUsage = errors.New("usage: comments [-table NAME] <put|get|update|query|delete|drop|tables> [-owner ID] [-at UNIX] [-text TEXT]")

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to load AWS configuration")
	}

	if err := run(ctx, os.Args[1:], dynamodb.NewFromConfig(awsCfg), cfg.Store.TableName, os.Stdout, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type commandArgs struct {
	owner string
	at    time.Time
	text  string
}

func parseCommandArgs(name string, args []string) (commandArgs, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	owner := fs.String("owner", "", "owner id")
	at := fs.Int64("at", 0, "record timestamp, in unix seconds")
	text := fs.String("text", "", "record text")
	if err := fs.Parse(args); err != nil {
		return commandArgs{}, fmt.Errorf("%s: %w", name, err)
	}
	return commandArgs{owner: *owner, at: time.Unix(*at, 0), text: *text}, nil
}

func run(ctx context.Context, args []string, api store.API, defaultTable string, out io.Writer, log *logrus.Logger) error {
	global := flag.NewFlagSet("comments", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	table := global.String("table", defaultTable, "table name")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if global.NArg() == 0 {
		return errUsage
	}

	command := global.Arg(0)
	if command == "tables" {
		names, err := store.ListTables(ctx, api)
		if err != nil {
			return err
		}
		return printJSON(out, names)
	}

	if !tableCommands[command] {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cmdArgs, err := parseCommandArgs(command, global.Args()[1:])
	if err != nil {
		return err
	}

	s, err := store.Open(ctx, api, *table, log)
	if err != nil {
		return err
	}

	switch command {
	case "put":
		return s.Put(ctx, store.Record{OwnerID: cmdArgs.owner, Timestamp: cmdArgs.at, Text: cmdArgs.text})
	case "get":
		r, err := s.Get(ctx, cmdArgs.owner, cmdArgs.at)
		if err != nil {
			return err
		}
		return printJSON(out, r)
	case "update":
		r, err := s.UpdateText(ctx, cmdArgs.owner, cmdArgs.at, cmdArgs.text)
		if err != nil {
			return err
		}
		return printJSON(out, r)
	case "query":
		records, err := s.QueryByOwner(ctx, cmdArgs.owner)
		if err != nil {
			return err
		}
		return printJSON(out, records)
	case "delete":
		return s.Delete(ctx, cmdArgs.owner, cmdArgs.at)
	case "drop":
		return s.Drop(ctx)
	}
	return nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
