// Command spriteweb serves sprites from a settings file over HTTP.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/common-nighthawk/go-figure"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/net/trace"

	"badc0de.net/pkg/pixelrender"
	"badc0de.net/pkg/pixelrender/datafiles"
	"badc0de.net/pkg/pixelrender/paths"
	"badc0de.net/pkg/pixelrender/settings"
	"badc0de.net/pkg/pixelrender/web"
)

var (
	listenAddress  = flag.String("listen_address", ":8080", "http listen address for spriteweb")
	debugWebServer = flag.String("debug_web_server_listen_address", "", "where the debug server will listen")
	banner         = flag.Bool("banner", true, "whether to print a banner on startup")
	compress       = flag.Bool("compress", true, "whether to gzip responses")

	settingsPath string
)

// traced records every request in the /debug/requests page of the debug server.
func traced(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr := trace.New("spriteweb", r.Method+" "+r.URL.Path)
		defer tr.Finish()
		tr.LazyPrintf("query: %q", r.URL.RawQuery)
		next.ServeHTTP(w, r.WithContext(trace.NewContext(r.Context(), tr)))
	})
}

func loadSettings() (pixelrender.Settings, error) {
	if settingsPath == "" {
		glog.Warningf("no %s found, using the built in sample", datafiles.SettingsFileName)
		return settings.Parse(datafiles.Settings)
	}
	return settings.Load(settingsPath)
}

func main() {
	paths.SetupFilePathFlag(datafiles.SettingsFileName, "settings", &settingsPath)
	flagutil.Parse()

	if *banner {
		figure.NewFigure("spriteweb", "", true).Print()
	}

	s, err := loadSettings()
	if err != nil {
		glog.Exitf("loading settings: %v", err)
	}
	pr, err := pixelrender.New(s)
	if err != nil {
		glog.Exitf("creating renderer: %v", err)
	}
	h, err := web.NewHandler(pr)
	if err != nil {
		glog.Exitf("creating handler: %v", err)
	}

	r := mux.NewRouter()
	h.RegisterRoutes(r)

	var root http.Handler = traced(r)
	if *compress {
		root = handlers.CompressHandler(root)
	}
	root = handlers.CombinedLoggingHandler(os.Stderr, root)

	if *debugWebServer != "" {
		http.HandleFunc("/debug/minimetrics", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "runtime.NumGoroutine(): %d\n", runtime.NumGoroutine())
			fmt.Fprintf(w, "settings signature: %016x\n", h.Signature())
		})
		go http.ListenAndServe(*debugWebServer, nil)
	}

	glog.Infof("spriteweb listening on %s", *listenAddress)
	glog.Fatal(http.ListenAndServe(*listenAddress, root))
}
