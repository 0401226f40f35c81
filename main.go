package main

import (
	"context"
	"flag"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/Zesty080/NFT-Whitelist/sale"
	"github.com/Zesty080/NFT-Whitelist/store"
	"github.com/Zesty080/NFT-Whitelist/trait"
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.avatar/sale/data", "database directory path")
	cp := flag.String("c", "~/.avatar/sale/config.toml", "configuration file path")
	flag.Parse()

	if strings.HasPrefix(*cp, "~/") {
		usr, _ := user.Current()
		*cp = filepath.Join(usr.HomeDir, (*cp)[2:])
	}
	conf, err := sale.Setup(*cp)
	if err != nil {
		panic(err)
	}

	if strings.HasPrefix(*bp, "~/") {
		usr, _ := user.Current()
		*bp = filepath.Join(usr.HomeDir, (*bp)[2:])
	}
	db, err := store.OpenBadger(ctx, *bp)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	pool, err := trait.NewPool(db, conf.Trait.Total)
	if err != nil {
		panic(err)
	}
	machine, err := sale.BuildMachine(conf, db, db, pool, db)
	if err != nil {
		panic(err)
	}
	err = buildRouter(machine).Run(conf.API.Listen)
	if err != nil {
		panic(err)
	}
}
