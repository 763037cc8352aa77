package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/shopctl/internal/client"
	"github.com/aidanlsb/shopctl/internal/gql"
	"github.com/aidanlsb/shopctl/internal/input"
	"github.com/aidanlsb/shopctl/internal/ui"
	"github.com/aidanlsb/shopctl/internal/value"
)

const graphqlUsage = `Run a raw GraphQL document

Usage:
  shopctl graphql <document|@file> [--variables <json|@file>] [--dry-run]

Examples:
  shopctl graphql '{ shop { name } }'
  shopctl graphql @query.graphql --variables '{"first": 5}'
`

func runGraphQL(cmd *cobra.Command, args []string) error {
	tokens, err := extractGlobalFlags(args)
	if err != nil {
		return err
	}
	if err := setup(); err != nil {
		return err
	}

	fs := pflag.NewFlagSet("graphql", pflag.ContinueOnError)
	fs.SetOutput(&strings.Builder{})
	variables := fs.String("variables", "", "Variables as JSON or @file")
	dryRun := fs.Bool("dry-run", false, "Print the request without sending it")
	help := fs.BoolP("help", "h", false, "Help for graphql")
	if err := fs.Parse(tokens); err != nil {
		return newCodedError(ErrInvalidInput, "%v", err)
	}
	if *help {
		fmt.Fprint(stdout, graphqlUsage)
		return nil
	}

	req, err := rawRequest(fs.Args(), *variables)
	if err != nil {
		return err
	}
	if *dryRun {
		return printDryRun(req, nil)
	}

	resp, _, err := send(cmd, req)
	var warnings []Warning
	if err != nil {
		var gqlErrs *client.GraphQLErrors
		if resp == nil || !errors.As(err, &gqlErrs) || resp.Data.IsNull() {
			return err
		}
		warnings = append(warnings, Warning{Code: WarnPartialData, Message: err.Error()})
		if !jsonOutput {
			fmt.Fprintln(stderr, ui.Warning(err.Error()))
		}
	}

	if jsonOutput {
		outputSuccess(resp.Data, warnings, &Meta{QueryTimeMs: resp.Duration.Milliseconds()})
		return nil
	}
	data, err := resp.Data.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, prettyJSON(data))
	return nil
}

// rawRequest joins the leading tokens into the document and reads the
// variables. Either may be an @file reference.
func rawRequest(tokens []string, variables string) (gql.Request, error) {
	if len(tokens) == 0 {
		return gql.Request{}, newCodedError(ErrMissingArgument, "a GraphQL document is required")
	}
	doc, err := input.ReadText(strings.Join(tokens, " "), nil)
	if err != nil {
		return gql.Request{}, err
	}
	if strings.TrimSpace(doc) == "" {
		return gql.Request{}, newCodedError(ErrMissingArgument, "the GraphQL document is empty")
	}

	vars := value.Null()
	if variables != "" {
		text, err := input.ReadText(variables, nil)
		if err != nil {
			return gql.Request{}, err
		}
		vars, err = value.Parse([]byte(text))
		if err != nil {
			return gql.Request{}, &input.MalformedJSONError{Source: "--variables", Err: err}
		}
		if _, ok := vars.AsObject(); !ok {
			return gql.Request{}, newCodedError(ErrInvalidInput, "--variables must be a JSON object")
		}
	}
	return gql.Raw(doc, vars), nil
}
