/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tomoncle/curriculum/auth"
	"github.com/tomoncle/curriculum/config"
	"github.com/tomoncle/curriculum/cv"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/metrics"
	"github.com/tomoncle/curriculum/server"
	"github.com/tomoncle/curriculum/storage"
	"github.com/tomoncle/curriculum/user"
	"github.com/tomoncle/curriculum/utils"
	"github.com/urfave/cli/v2"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	utils.ConfigureLogging(cfg.Log)
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := utils.NewLogger("MAIN")

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := database.Open(ctx, &cfg.Database, false)
			if err != nil {
				return errors.WithStack(err)
			}
			defer db.Close()
			if err := metrics.RegisterDBStats(prometheus.DefaultRegisterer, db); err != nil {
				return errors.Wrap(err, "metrics")
			}

			tokens, err := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			users := user.NewService(db.GetDB(), tokens)
			if cfg.Auth.AdminUsername != "" {
				if _, err := users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
					return errors.Wrap(err, "bootstrap admin")
				}
			}

			files, err := storage.New(ctx, cfg.Storage, cfg.Upload.Validator())
			if err != nil {
				return errors.Wrap(err, "storage")
			}

			opts := server.Options{
				Users:         users,
				CVs:           cv.NewService(db.GetDB(), users, files),
				Tokens:        tokens,
				Health:        db,
				MaxUploadSize: cfg.Upload.MaxSize,
			}
			if strings.EqualFold(files.Backend(), storage.TypeLocal) {
				opts.LocalUploads = &cfg.Storage.Local
			}
			if cfg.Server.Mode != "" {
				gin.SetMode(cfg.Server.Mode)
			}

			log.WithField("storage", files.Backend()).Info("starting curriculum")
			return server.Run(ctx, cfg.Server.Addr, server.NewRouter(opts), cfg.Server.ReadHeaderTimeout, cfg.Server.ShutdownTimeout)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the tables and indexes",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "seed", Usage: "also run the SQL seed files"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := database.Open(c.Context, &cfg.Database, true)
			if err != nil {
				return errors.WithStack(err)
			}
			defer db.Close()

			if c.Bool("seed") {
				if err := db.GetManager().InitData(c.Context); err != nil {
					return errors.Wrap(err, "seed")
				}
			}
			utils.NewLogger("MAIN").Info("migrations complete")
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "issue an access token for an existing account",
		ArgsUsage: "<username>",
		Action: func(c *cli.Context) error {
			username := c.Args().First()
			if username == "" {
				return cli.Exit("username is required", 2)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			db, err := database.Open(c.Context, &cfg.Database, false)
			if err != nil {
				return errors.WithStack(err)
			}
			defer db.Close()

			u, err := user.NewService(db.GetDB(), tokens).FindByUsername(c.Context, username)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(u.Identity())
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write([]byte(token + "\n"))
			return err
		},
	}
}
