package http

import (
	"net/http"
	"strings"
)

// RouterConfig lists the handlers mounted by NewRouter. Nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	Slots      *SlotHandler
	Bookings   *BookingHandler
	Admin      *AdminHandler
	Sync       *SyncHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if cfg.Admin != nil {
		mux.HandleFunc("/hosts", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Admin.CreateHost(w, r)
		})
		mux.HandleFunc("/hosts/", func(w http.ResponseWriter, r *http.Request) {
			hostID, rest := splitResourcePath(r.URL.Path, "/hosts/")
			if hostID == "" || rest != "patterns" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Admin.ReplacePatterns(w, r, hostID)
		})
		mux.HandleFunc("/holidays", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Admin.CreateHoliday(w, r)
		})
		mux.HandleFunc("/slots/", func(w http.ResponseWriter, r *http.Request) {
			slotID, rest := splitResourcePath(r.URL.Path, "/slots/")
			if slotID == "" || rest != "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Admin.CancelWebinarSlot(w, r, slotID)
		})
	}

	if cfg.Admin != nil || cfg.Slots != nil || cfg.Bookings != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || cfg.Admin == nil {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Admin.CreateEvent(w, r)
		})
		mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
			eventID, rest := splitResourcePath(r.URL.Path, "/events/")
			if eventID == "" {
				http.NotFound(w, r)
				return
			}

			switch rest {
			case "slots":
				switch r.Method {
				case http.MethodGet:
					if cfg.Slots == nil {
						http.NotFound(w, r)
						return
					}
					cfg.Slots.List(w, r, eventID)
				case http.MethodPost:
					if cfg.Admin == nil {
						http.NotFound(w, r)
						return
					}
					cfg.Admin.CreateWebinarSlot(w, r, eventID)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPost)
				}
			case "bookings":
				if cfg.Bookings == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Bookings.Create(w, r, eventID)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Bookings != nil {
		mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
			bookingID, rest := splitResourcePath(r.URL.Path, "/bookings/")
			if bookingID == "" || rest != "" {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Bookings.Get(w, r, bookingID)
			case http.MethodDelete:
				cfg.Bookings.Cancel(w, r, bookingID)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}

	if cfg.Sync != nil {
		mux.HandleFunc("/sync/busy-intervals", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Sync.Refresh(w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		handler = cfg.Middleware[i](handler)
	}
	return handler
}

// splitResourcePath separates "/events/ev-1/slots" into ("ev-1", "slots").
func splitResourcePath(path, prefix string) (id, rest string) {
	trimmed := strings.TrimPrefix(path, prefix)
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return "", ""
	}
	parts := strings.SplitN(trimmed, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		rest = parts[1]
	}
	return id, rest
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
