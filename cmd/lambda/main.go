package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/m3rciful/residentbot/core/bootstrap"
	"github.com/m3rciful/residentbot/core/cmd"
)

func main() {
	err := cmd.Run(cmd.Options{
		Serve: func(_ context.Context, app *bootstrap.App) error {
			lambda.Start(app.Handler.HandleLambda)
			return nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
