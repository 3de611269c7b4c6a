package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"croplens/app"
	"croplens/chart"
	"croplens/geo"
	"croplens/insights"
	"croplens/places"
)

var EnvFlag = flag.String("env", "dev", "Set the environment")
var ServeFlag = flag.Bool("serve", false, "Run the server")
var AddressFlag = flag.String("address", ":8080", "Address for server")
var BackendFlag = flag.String("backend", "http://localhost:8000", "Base URL of the insights backend")
var FenceFlag = flag.Bool("fence", true, "Discard responses superseded by a newer request")
var IPFallbackFlag = flag.Bool("ip-fallback", false, "Locate by client IP when the browser has no geolocation")

func main() {
	flag.Parse()

	if !*ServeFlag {
		fmt.Fprintln(os.Stderr, "--serve not set")
		flag.Usage()
		os.Exit(2)
	}

	if err := loadEnv(); err != nil {
		app.Log("main", "failed to load .env: %v", err)
	}

	var opts []insights.Option
	if *FenceFlag {
		opts = append(opts, insights.WithFencing())
	}

	// place search is only available with an api key, and loads on first mount
	views := insights.NewViews(insights.NewClient(*BackendFlag), chart.ECharts{}, places.Configured(), opts...)
	defer views.Close()

	h := &insights.Handler{Views: views, Places: places.Load}
	if *IPFallbackFlag {
		h.Fallback = geo.NewIPLocator
	}

	app.RegisterCheck("backend", func() app.StatusCheck {
		return app.StatusCheck{Name: "backend", Status: true, Details: *BackendFlag}
	})
	app.RegisterCheck("places", func() app.StatusCheck {
		if !places.Configured() {
			return app.StatusCheck{Name: "places", Status: false, Details: "GOOGLE_API_KEY not set"}
		}
		return app.StatusCheck{Name: "places", Status: true}
	})
	app.RegisterCheck("views", func() app.StatusCheck {
		return app.StatusCheck{Name: "views", Status: true, Details: fmt.Sprintf("%d mounted", views.Len())}
	})

	mux := http.NewServeMux()

	// insights view and its actions
	h.Register(mux)

	// status
	mux.HandleFunc("/status", app.StatusHandler)

	// serve the page at the root and static assets below it
	static := app.Serve()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			h.Index(w, r)
			return
		}
		static.ServeHTTP(w, r)
	})

	app.Log("main", "Starting server on %s", *AddressFlag)

	if err := http.ListenAndServe(*AddressFlag, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if *EnvFlag == "dev" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		if v := len(r.URL.Path); v > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = r.URL.Path[:v-1]
		}

		mux.ServeHTTP(w, r)
	})); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnv reads .env files into the environment. A missing file is not an error.
func loadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
