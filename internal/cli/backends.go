package cli

import (
	"log/slog"

	"pkgdeck/internal/config"
	"pkgdeck/internal/executor"
	"pkgdeck/internal/fetch"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/detector"
	"pkgdeck/pkg/manager/lang"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/universal"
)

// registerBackends registers every supported source and marks the
// distribution's own package manager as native. Unavailable sources are
// registered too so the provider report can explain what is missing.
func registerBackends(reg *manager.Registry, cfg *config.Config, exec *executor.Executor, client *fetch.Client) {
	// System package managers
	reg.Register(native.NewAPT(exec))
	reg.Register(native.NewDNF(exec))
	reg.Register(native.NewPacman(exec))
	reg.Register(native.NewZypper(exec))

	// Package files on disk
	reg.Register(native.NewDeb(exec, config.ExpandHome(cfg.GetManagerConfig("deb").Directory)))
	appimage := cfg.GetManagerConfig("appimage")
	reg.Register(native.NewAppImage(exec,
		config.ExpandHome(appimage.Directory),
		config.ExpandHome(appimage.InstallDirectory)))

	// Sandboxed application stores and the AUR
	reg.Register(universal.NewFlatpak(exec, cfg.GetManagerConfig("flatpak").DefaultRemote))
	reg.Register(universal.NewSnap(exec, cfg.GetManagerConfig("snap").AllowClassic))
	reg.Register(universal.NewAUR(exec, cfg.GetManagerConfig("aur").AURHelper))

	// Language and tool installers
	reg.Register(lang.NewNPM(exec))
	reg.Register(lang.NewPip(exec))
	reg.Register(lang.NewPipx(exec))
	reg.Register(lang.NewCargo(exec))
	reg.Register(lang.NewBrew(exec))
	reg.Register(lang.NewConda(exec))
	reg.Register(lang.NewMamba(exec))
	reg.Register(lang.NewDart(exec, client, cfg.GetManagerConfig("dart").PreferFlutter))

	info, err := detector.Detect()
	if err != nil {
		slog.Debug("host detection incomplete", "err", err)
	}
	if info != nil {
		if src, ok := info.SystemSource(); ok {
			reg.SetNative(src)
		}
	}
}
