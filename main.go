package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/aws/session"
	log "github.com/sirupsen/logrus"

	"github.com/vectorazul/aws-config/config"
	"github.com/vectorazul/aws-config/handler"
	lambdamanager "github.com/vectorazul/aws-config/lambda"
	"github.com/vectorazul/aws-config/parameters"
	"github.com/vectorazul/aws-config/tracing"
	"github.com/vectorazul/aws-config/types"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{DisableTimestamp: true})
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalln("unable to load configuration:", err.Error())
	}
	log.SetLevel(cfg.Level())

	entry := log.WithFields(log.Fields{"function": lambdacontext.FunctionName})

	// AWS session
	sess := session.Must(session.NewSession())

	// the lookup happens before tracing exists, use the no-op global provider
	project := resolveProject(ctx, entry, parameters.NewAWSParameterStore(sess, nil), cfg.ParameterPrefix)

	tp, err := tracing.NewProvider(ctx, tracing.Options{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
		Region:          cfg.Region,
		Project:         project,
		OTLPEndpoint:    cfg.OTLPEndpoint,
		OTLPInsecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalln("unable to create tracer provider:", err.Error())
	}

	manager := lambdamanager.NewAWSLambdaManager(sess, tp)
	h := handler.New(entry, manager, tp,
		handler.WithSegmentName(cfg.SegmentName),
		handler.WithRedactKeys(cfg.RedactKeys))

	if cfg.Warmup {
		_ = h.Warmup(ctx)
	}

	lambda.StartWithOptions(h.Handle, lambda.WithEnableSIGTERM(func() {
		if err := tp.Shutdown(ctx); err != nil {
			entry.Errorln("unable to shut down tracer provider", err.Error())
		}
	}))
}

// resolveProject looks up the project parameters when a prefix is configured.
// Tracing works without them, so a failure is only logged.
func resolveProject(ctx context.Context, entry *log.Entry, store types.ParameterStore, prefix string) *types.Project {
	if prefix == "" {
		return nil
	}

	project, err := parameters.Project(ctx, store, prefix)
	if err != nil {
		entry.Warnln("unable to resolve project parameters under", prefix, err.Error())
		return nil
	}

	entry.WithFields(log.Fields{"project": project.Name, "environment": project.Environment}).Infoln("resolved project parameters")
	return project
}
