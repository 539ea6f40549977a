package cmd

import "github.com/ardnew/folio/pkg"

var (
	ErrData       = pkg.NewError("read context data")
	ErrMerge      = pkg.NewError("context data files must all be dictionaries")
	ErrRender     = pkg.NewError("render template")
	ErrParse      = pkg.NewError("parse template")
	ErrWrite      = pkg.NewError("write view")
	ErrDatabase   = pkg.NewError("template database")
	ErrNoDatabase = pkg.NewError("no template database (use --db)")
	ErrStdin      = pkg.NewError("template and context data cannot both be read from stdin")
)
