package main

import "flag"

// flagSet is a *flag.FlagSet that reports parse errors to the caller
// instead of exiting the process, so run can turn a bad flag into an
// exit code rather than a hard os.Exit from inside flag.Parse.
type flagSet struct {
	*flag.FlagSet
}

func newCustomFlagSet(name string) *flagSet {
	return &flagSet{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
}
