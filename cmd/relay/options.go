package main

type Options struct {
	Addr     string `short:"a" long:"addr" description:"listen address, overrides CMDRELAY_ADDR"`
	EnvFile  string `short:"e" long:"env" description:"env file, defaults to an optional .env"`
	StoreURL string `short:"s" long:"store" description:"store url: mem://, redis://host:port/db, sqlite:///path.db or an afs location"`
}
