// Command mokmanager runs the MOK management session: it reads any staged
// trust-material request left behind by a prior OS boot, presents the
// operator with a menu of actions, and commits whatever they approve back
// into the persistent trust variable.
//
// Outside actual pre-boot firmware there is no shim-lock vendor-GUID
// variable store or simple-file-system protocol to attach to, so this
// entry point wires the session against host-backed stand-ins: a BoltDB
// file for the firmware variables and a handful of host directories as
// browsable volumes.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	mokmanager "github.com/karasz/mokmanager"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mokmanager: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	varDB := flag.String("vars", "mokvars.db", "path to the firmware-variable store")
	auditDB := flag.String("audit", "mokaudit.db", "path to the session audit trail (empty disables it)")
	volumeDirs := flag.String("volumes", ".", "comma-separated host directories to expose as browsable volumes")
	flag.Parse()

	console, err := mokmanager.NewTermConsole(os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("open console: %w", err)
	}
	defer console.Close()

	store, err := mokmanager.OpenBoltVariableStore(*varDB)
	if err != nil {
		return fmt.Errorf("open variable store: %w", err)
	}
	defer store.Close()

	var audit *mokmanager.AuditStore
	if *auditDB != "" {
		audit, err = mokmanager.OpenAuditStore(*auditDB)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer audit.Close()
	}

	dirs := strings.Split(*volumeDirs, ",")
	volumes := mokmanager.NewLocalFileSystemProvider(dirs...)

	auth := mokmanager.NewAuthenticator(console)
	commit := mokmanager.NewCommitLayer(store, auth)
	enroll := mokmanager.NewEnrollScreen(console, mokmanager.NewInspector(), commit, audit)
	files := mokmanager.NewFileEnrollPipeline(console, volumes, mokmanager.LocalShimLockProtocol{}, enroll)

	orch := mokmanager.NewOrchestrator(console, store, enroll, files)
	return orch.Run()
}
