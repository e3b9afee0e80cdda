package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"slices"

	"github.com/cryptboot/bootunlock/cmd/flags"
	"github.com/cryptboot/bootunlock/credcache"
	"github.com/cryptboot/bootunlock/diskutil"
	"github.com/cryptboot/bootunlock/display"
	"github.com/cryptboot/bootunlock/interfaces"
	"github.com/cryptboot/bootunlock/session"
	"github.com/cryptboot/bootunlock/system"
	"github.com/urfave/cli/v2"
)

const usage string = `Early-boot encrypted volume unlock tool
Unlocks and mounts encrypted volumes in dependency order before the root
filesystem is available:
* Cached passphrases are reused across volumes without re-prompting
* Failed steps hand control to an operator under a recovery policy
* Session credentials are securely erased before boot continues`

var deviceFlag = &cli.StringFlag{
	Name:     "device",
	Required: true,
	Usage:    "source block device path",
	EnvVars:  []string{"DEVICE"},
}
var mapperNameFlag = &cli.StringFlag{
	Name:     "mapper-name",
	Required: true,
	Usage:    "mapper name for the unlocked volume",
	EnvVars:  []string{"MAPPER_NAME"},
}
var maxAttemptsFlag = &cli.IntFlag{
	Name:    "max-attempts",
	Value:   3,
	Usage:   "interactive passphrase attempts before giving up",
	EnvVars: []string{"MAX_ATTEMPTS"},
}
var headerFlag = &cli.StringFlag{
	Name:    "header",
	Usage:   "detached header path, if any",
	EnvVars: []string{"HEADER"},
}
var keyfileFlag = &cli.StringFlag{
	Name:    "keyfile",
	Usage:   "key-file path; '-' or unset means passphrase mode",
	EnvVars: []string{"KEYFILE"},
}
var folderFlag = &cli.StringFlag{
	Name:  "folder",
	Usage: "mount point folder name, defaults to the device base name",
}
var mappedFlag = &cli.BoolFlag{
	Name:  "mapped",
	Usage: "treat the reference as a mapper name instead of a raw device",
}
var iterationsFlag = &cli.IntFlag{
	Name:  "iterations",
	Value: interfaces.DefaultEraseIterations,
	Usage: "overwrite passes for secure erase",
}

func main() {
	app := &cli.App{
		Name:  "bootunlock",
		Usage: usage,
		Commands: []*cli.Command{
			runCommand(),
			unlockCommand(),
			mountCommand(),
			teardownCommand(),
			eraseCommand(),
			prereqsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type env struct {
	log   *slog.Logger
	paths interfaces.Paths
	cache *credcache.Cache
	disks *diskutil.Manager
	shell interfaces.OperatorShell
}

func newEnv(cCtx *cli.Context) *env {
	logger := flags.SetupLogger(cCtx)
	paths := flags.Paths(cCtx)

	runner := system.ExecRunner{}
	splash := display.NewSplash(runner, os.Stderr, logger)
	cache := credcache.Open(paths.RunDir, logger)

	disks := &diskutil.Manager{
		Paths:    paths,
		Runner:   runner,
		Resolver: system.BlkidResolver{Runner: runner},
		Cache:    cache,
		Prompter: display.NewPassphrasePrompter(splash, os.Stdin, os.Stderr),
		Display:  splash,
		Log:      logger,
	}

	return &env{
		log:   logger,
		paths: paths,
		cache: cache,
		disks: disks,
		shell: system.InteractiveShell{},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "unlock and mount all volumes from the boot plan",
		Flags: slices.Concat(flags.CommonFlags, flags.PathFlags,
			[]cli.Flag{flags.RecoveryPolicyFlag, flags.VolumesFileFlag}),
		Action: func(cCtx *cli.Context) error {
			policy, err := interfaces.ParseRecoveryPolicy(cCtx.String(flags.RecoveryPolicyFlag.Name))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			plan, err := session.LoadPlan(cCtx.String(flags.VolumesFileFlag.Name))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			// Driver loop: a restart request rebuilds the session and
			// re-invokes the sequence from the beginning.
			for {
				e := newEnv(cCtx)
				sess := session.New(policy, e.paths, e.cache, e.disks, e.shell, e.log)

				err := sess.Run(plan)
				if errors.Is(err, interfaces.ErrRestartRequested) {
					e.log.Info("restarting boot sequence from the beginning")
					continue
				}
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				return nil
			}
		},
	}
}

func unlockCommand() *cli.Command {
	return &cli.Command{
		Name:  "unlock",
		Usage: "unlock a single volume",
		Flags: slices.Concat(flags.CommonFlags, flags.PathFlags,
			[]cli.Flag{deviceFlag, mapperNameFlag, maxAttemptsFlag, headerFlag, keyfileFlag}),
		Action: func(cCtx *cli.Context) error {
			e := newEnv(cCtx)
			desc := interfaces.VolumeDescriptor{
				Device:      cCtx.String(deviceFlag.Name),
				MapperName:  cCtx.String(mapperNameFlag.Name),
				MaxAttempts: cCtx.Int(maxAttemptsFlag.Name),
				Header:      cCtx.String(headerFlag.Name),
				Keyfile:     cCtx.String(keyfileFlag.Name),
			}
			if err := e.disks.Unlock(desc); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func mountCommand() *cli.Command {
	refFlag := &cli.StringFlag{
		Name:     "ref",
		Required: true,
		Usage:    "raw device path, or mapper name with --mapped",
	}
	return &cli.Command{
		Name:  "mount",
		Usage: "mount an unlocked or plain volume under the mount root",
		Flags: slices.Concat(flags.CommonFlags, flags.PathFlags,
			[]cli.Flag{refFlag, mappedFlag, folderFlag}),
		Action: func(cCtx *cli.Context) error {
			e := newEnv(cCtx)
			err := e.disks.Mount(cCtx.String(refFlag.Name), cCtx.Bool(mappedFlag.Name), cCtx.String(folderFlag.Name))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func teardownCommand() *cli.Command {
	return &cli.Command{
		Name:  "teardown",
		Usage: "unmount and close a mapped volume",
		Flags: slices.Concat(flags.CommonFlags, flags.PathFlags, []cli.Flag{mapperNameFlag}),
		Action: func(cCtx *cli.Context) error {
			e := newEnv(cCtx)
			if err := e.disks.Teardown(cCtx.String(mapperNameFlag.Name)); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func eraseCommand() *cli.Command {
	return &cli.Command{
		Name:  "erase",
		Usage: "securely destroy the session credential cache",
		Flags: slices.Concat(flags.CommonFlags, flags.PathFlags, []cli.Flag{iterationsFlag}),
		Action: func(cCtx *cli.Context) error {
			e := newEnv(cCtx)
			e.cache.Erase(cCtx.Int(iterationsFlag.Name))
			return nil
		},
	}
}

// prereqsCommand implements the boot-entry contract: this tool has no
// boot-order prerequisites, and the query path does no unlock/mount work.
func prereqsCommand() *cli.Command {
	return &cli.Command{
		Name:  "prereqs",
		Usage: "print boot-order prerequisites (always empty)",
		Action: func(cCtx *cli.Context) error {
			fmt.Println()
			return nil
		},
	}
}
