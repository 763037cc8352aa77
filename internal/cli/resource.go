package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/shopctl/internal/audit"
	"github.com/aidanlsb/shopctl/internal/client"
	"github.com/aidanlsb/shopctl/internal/commands"
	"github.com/aidanlsb/shopctl/internal/config"
	"github.com/aidanlsb/shopctl/internal/engine"
	"github.com/aidanlsb/shopctl/internal/gql"
	"github.com/aidanlsb/shopctl/internal/pagination"
	"github.com/aidanlsb/shopctl/internal/selection"
	"github.com/aidanlsb/shopctl/internal/ui"
)

// newClient builds the API client for an endpoint. Tests point it at a
// local server.
var newClient = client.New

// runResource handles every catalog resource command: resolve the verb,
// build and check the request, then send it and print the result.
func runResource(cmd *cobra.Command, resource string, args []string) error {
	tokens, err := extractGlobalFlags(args)
	if err != nil {
		return err
	}
	if err := setup(); err != nil {
		return err
	}

	e, err := getEngine()
	if err != nil {
		return err
	}

	plan, err := e.Prepare(resource, tokens, outputDefaults())
	if err != nil {
		return err
	}
	if plan.Help {
		fmt.Fprint(stdout, commands.Usage(plan.Resource, plan.Verb))
		return nil
	}

	warnings := make([]Warning, 0, len(plan.Warnings))
	for _, w := range plan.Warnings {
		log.Debug().Str("resource", resource).Msg(w)
		warnings = append(warnings, Warning{Code: WarnIgnoredFlag, Message: w})
		if !jsonOutput {
			fmt.Fprintln(stderr, ui.Warning(w))
		}
	}

	if plan.DryRun {
		return printDryRun(plan.Request, warnings)
	}

	resp, store, err := send(cmd, plan.Request)
	if err != nil {
		// Top-level errors that came with data are shown as warnings.
		var gqlErrs *client.GraphQLErrors
		if resp == nil || !errors.As(err, &gqlErrs) || resp.Data.IsNull() {
			if plan.Verb.Mutating() && store != "" {
				recordMutation(plan, store, resp, nil, err)
			}
			return err
		}
		warnings = append(warnings, Warning{Code: WarnPartialData, Message: err.Error()})
		if !jsonOutput {
			fmt.Fprintln(stderr, ui.Warning(err.Error()))
		}
	}

	res, err := plan.Unwrap(resp.Data)
	if plan.Verb.Mutating() {
		recordMutation(plan, store, resp, res, err)
	}

	if plan.View == selection.ViewPassthrough {
		fmt.Fprintln(stdout, strings.TrimRight(string(resp.Body), "\n"))
		return nil
	}
	if err != nil {
		return err
	}

	nextPage := ""
	if res.PageInfo != nil {
		nextPage = pagination.HintArgs(append([]string{"shopctl", resource}, args...), *res.PageInfo)
		rememberNextPage(nextPage)
	}

	if jsonOutput {
		var data interface{} = res.Data
		count := 0
		if plan.Format == engine.FormatIDs {
			ids := plan.IDs(res)
			data, count = ids, len(ids)
		} else if items, ok := res.Data.AsList(); ok {
			count = len(items)
		}
		outputSuccess(data, warnings, &Meta{
			Count:       count,
			NextPage:    nextPage,
			QueryTimeMs: resp.Duration.Milliseconds(),
		})
		return nil
	}

	if err := printResult(plan, res); err != nil {
		return err
	}
	if nextPage != "" {
		fmt.Fprintln(stderr, ui.Hint("Next page: "+nextPage))
	}
	return nil
}

// outputDefaults maps the [output] config section onto engine defaults.
// Without a configured format, terminals get tables and pipes get JSON.
func outputDefaults() engine.Defaults {
	out := getConfig().Output
	d := engine.Defaults{
		View:     selection.View(out.View),
		Format:   out.Format,
		PageSize: out.PageSize,
	}
	if d.Format == "" && getDisplay().IsTTY {
		d.Format = engine.FormatTable
	}
	return d
}

func printDryRun(req gql.Request, warnings []Warning) error {
	if jsonOutput {
		outputSuccess(map[string]interface{}{
			"query":     req.Query,
			"variables": req.Variables,
		}, warnings, nil)
		return nil
	}
	fmt.Fprintln(stdout, strings.TrimRight(req.Query, "\n"))
	fmt.Fprintln(stdout)
	vars, err := req.Variables.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, prettyJSON(vars))
	return nil
}

// send resolves the store, then posts req with a spinner running. The
// store name is returned once it is known.
func send(cmd *cobra.Command, req gql.Request) (*client.Response, string, error) {
	name, store, err := getConfig().GetStore(storeName)
	if err != nil {
		if errors.Is(err, config.ErrNoStore) {
			return nil, "", newCodedError(ErrConfigInvalid, "no store selected: pass --store or set default_store in %s", getConfigPath())
		}
		return nil, "", &codedError{code: ErrConfigInvalid, err: err}
	}

	c, err := newClient(store.Endpoint(), store.Token())
	if err != nil {
		var mte *client.MissingTokenError
		if errors.As(err, &mte) {
			mte.TokenEnv = store.TokenEnv
		}
		return nil, "", err
	}

	spinner := ui.NewSpinner("Querying " + name)
	spinner.Start()
	start := time.Now()
	resp, err := c.Do(cmd.Context(), req)
	spinner.Stop()

	log.Debug().
		Str("store", name).
		Str("operation", req.OperationName).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("request finished")
	return resp, name, err
}

// recordMutation appends a sent mutation to the audit log, if one is
// configured. Failures to write are logged and otherwise ignored.
func recordMutation(plan *engine.Plan, store string, resp *client.Response, res *engine.Result, err error) {
	logger := audit.New(config.ResolveAuditPath(getConfigPath(), getConfig()))
	if !logger.Enabled() {
		return
	}

	entry := audit.Entry{
		Store:     store,
		Resource:  plan.Resource.Name,
		Verb:      plan.Verb.Name,
		Operation: plan.Verb.Operation,
		IDs:       mutationIDs(plan, res),
	}
	if resp != nil {
		entry.DurationMs = resp.Duration.Milliseconds()
	}
	var userErrs *engine.UserErrorsError
	switch {
	case errors.As(err, &userErrs):
		entry.UserErrors = len(userErrs.Errors)
	case err != nil:
		entry.Error = err.Error()
	}
	if werr := logger.Log(entry); werr != nil {
		log.Warn().Err(werr).Str("path", logger.Path()).Msg("audit entry not written")
	}
}

// mutationIDs lists the ids a mutation targeted or returned.
func mutationIDs(plan *engine.Plan, res *engine.Result) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if plan.Operation != nil {
		if v, ok := plan.Operation.Args.Get("id"); ok {
			s, _ := v.AsString()
			add(s)
		}
		if in, ok := plan.Operation.Args.Get("input"); ok {
			if obj, ok := in.AsObject(); ok {
				if v, ok := obj.Get("id"); ok {
					s, _ := v.AsString()
					add(s)
				}
			}
		}
	}
	for _, id := range plan.IDs(res) {
		add(id)
	}
	return ids
}

// rememberNextPage records the follow-up command for `shopctl next`.
// An empty hint clears it.
func rememberNextPage(hint string) {
	path := getStatePath()
	state, err := config.LoadState(path)
	if err != nil {
		log.Warn().Err(err).Msg("paging state not saved")
		return
	}
	if state.NextPage == hint {
		return
	}
	state.NextPage = hint
	if err := config.SaveState(path, state); err != nil {
		log.Warn().Err(err).Msg("paging state not saved")
	}
}
