// Package flags holds the cli flag definitions and logger setup shared by
// bootunlock commands.
package flags

import (
	"log/slog"

	"github.com/cryptboot/bootunlock/common"
	"github.com/cryptboot/bootunlock/interfaces"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var MapperDirFlag = &cli.StringFlag{
	Name:    "mapper-dir",
	Value:   "/dev/mapper",
	Usage:   "virtual device directory unlocked volumes appear in",
	EnvVars: []string{"MAPPER_DIR"},
}
var MountRootFlag = &cli.StringFlag{
	Name:    "mount-root",
	Value:   "/mnt",
	Usage:   "canonical directory to create mount points under",
	EnvVars: []string{"MOUNT_ROOT"},
}
var RunDirFlag = &cli.StringFlag{
	Name:    "run-dir",
	Value:   "/run/bootunlock",
	Usage:   "directory for session artifacts (credential cache, recovery markers)",
	EnvVars: []string{"RUN_DIR"},
}

var RecoveryPolicyFlag = &cli.StringFlag{
	Name:    "recovery-policy",
	Value:   "continue",
	Usage:   "failure remediation: continue, exit or rerun",
	EnvVars: []string{"RECOVERY_POLICY"},
}

var VolumesFileFlag = &cli.StringFlag{
	Name:     "volumes-file",
	Required: true,
	Usage:    "JSON boot plan listing volumes in dependency order",
	EnvVars:  []string{"VOLUMES_FILE"},
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}

var PathFlags = []cli.Flag{
	MapperDirFlag,
	MountRootFlag,
	RunDirFlag,
}

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: common.PackageName,
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func Paths(cCtx *cli.Context) interfaces.Paths {
	paths := interfaces.DefaultPaths()
	paths.MapperDir = cCtx.String(MapperDirFlag.Name)
	paths.MountRoot = cCtx.String(MountRootFlag.Name)
	paths.RunDir = cCtx.String(RunDirFlag.Name)
	return paths
}
