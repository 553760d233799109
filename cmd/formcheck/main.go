package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/theflupke/formcheck/pkg/dom"
	"github.com/theflupke/formcheck/pkg/form"
	"github.com/theflupke/formcheck/pkg/messages"
	"github.com/theflupke/formcheck/pkg/registry"
	"github.com/theflupke/formcheck/pkg/schema"
	"github.com/theflupke/formcheck/pkg/validators"
)

func main() {
	htmlPath := flag.String("html", "", "HTML document to validate")
	container := flag.String("container", "form", "CSS selector of the form container")
	messagesDir := flag.String("messages", "", "directory of message catalog files (YAML/JSON)")
	locale := flag.String("locale", "", "locale for error messages, e.g. fr-CA")
	openapiPath := flag.String("openapi", "", "OpenAPI document to derive rules from")
	operation := flag.String("operation", "", "operation ID inside the OpenAPI document")
	debug := flag.Bool("debug", false, "log internal validator failures")
	flag.Parse()

	if *htmlPath == "" {
		log.Fatal("missing -html flag")
	}

	ctx := context.Background()

	reg := registry.New()
	if err := validators.RegisterAll(reg); err != nil {
		log.Fatalf("register built-in validators: %v", err)
	}

	opts := []form.Option{form.WithRegistry(reg), form.WithDebug(*debug)}

	if *openapiPath != "" {
		if *operation == "" {
			log.Fatal("missing -operation flag for -openapi")
		}
		data, err := os.ReadFile(*openapiPath)
		if err != nil {
			log.Fatalf("read OpenAPI document: %v", err)
		}
		ruleSet, err := schema.Derive(ctx, data, *operation)
		if err != nil {
			log.Fatalf("derive rules: %v", err)
		}
		if err := ruleSet.Apply(reg); err != nil {
			log.Fatalf("apply rules: %v", err)
		}
		opts = append(opts, ruleSet.FormOptions()...)
	}
	reg.Seal()

	if *messagesDir != "" {
		bundle, err := messages.LoadFS(os.DirFS(filepath.Clean(*messagesDir)))
		if err != nil {
			log.Fatalf("load message catalogs: %v", err)
		}
		opts = append(opts, form.WithMessageBundle(bundle))
	}
	if *debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("init logger: %v", err)
		}
		defer logger.Sync()
		opts = append(opts, form.WithLogger(logger))
	}

	file, err := os.Open(*htmlPath)
	if err != nil {
		log.Fatalf("open HTML document: %v", err)
	}
	defer file.Close()

	doc, err := dom.Parse(file)
	if err != nil {
		log.Fatalf("parse HTML document: %v", err)
	}

	v, err := form.NewForSelector(doc, *container, opts...)
	if err != nil {
		log.Fatalf("build validator: %v", err)
	}

	report, err := v.Validate(ctx)
	var invalid *form.InvalidError
	switch {
	case err == nil:
		fmt.Printf("OK: %d fields valid\n", len(report.Fields))
	case errors.As(err, &invalid):
		fmt.Printf("INVALID: %d of %d fields failed\n", len(report.Failing), len(report.Fields))
		for _, field := range report.Failing {
			for _, msg := range field.ErrorMessages(*locale) {
				fmt.Printf("  %s: %s\n", msg.Label, msg.Text)
			}
		}
		os.Exit(1)
	default:
		log.Fatalf("validate: %v", err)
	}
}
