package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	log "github.com/sirupsen/logrus"

	"github.com/vectorazul/aws-config/lambda"
	"github.com/vectorazul/aws-config/types"
)

func init() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
}

func main() {
	function := flag.String("function", "", "name or ARN of the deployed function")
	region := flag.String("region", "", "AWS region, defaults to the shared configuration")
	payload := flag.String("payload", "{}", "JSON event sent to the function")
	flag.Parse()

	if *function == "" {
		flag.Usage()
		os.Exit(2)
	}

	// AWS session
	opts := session.Options{SharedConfigState: session.SharedConfigEnable}
	if *region != "" {
		opts.Config.Region = aws.String(*region)
	}
	sess := session.Must(session.NewSessionWithOptions(opts))

	if err := run(context.Background(), lambda.NewAWSLambdaManager(sess, nil), *function, *payload); err != nil {
		log.Errorln("invoke", *function, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, invoker types.FunctionInvoker, function, payload string) error {
	if !json.Valid([]byte(payload)) {
		return fmt.Errorf("payload is not valid JSON")
	}

	out, err := invoker.Invoke(ctx, function, json.RawMessage(payload))
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}
