package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/simcat/internal/adapters/http/api"
	service "github.com/okian/simcat/internal/app"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedSource struct{ catalog model.Catalog }

func (f fixedSource) Name() string { return "fixed" }

func (f fixedSource) Load(context.Context) (model.Catalog, error) { return f.catalog, nil }

func fixture() model.Catalog {
	return model.Catalog{
		Topics: []model.Taxonomy{{Category: "Situations", Values: []string{"x", "y"}, Color: "#8e24aa"}},
		Roles:  model.Taxonomy{Category: "Roles", Values: []string{"r1"}, Color: "#424242"},
		Weeks:  model.Taxonomy{Category: "Weeks", Values: []string{"w1"}, Color: "#424242"},
		Simulations: []model.Simulation{
			{ID: "1", Title: "A", Type: "formal", Difficulty: "easy", PrimaryTopic: "x", PrimaryRole: "r1"},
			{ID: "2", Title: "B", Type: "formal", Difficulty: "hard", SecondaryTopics: []string{"x"}},
			{ID: "3", Title: "C", Type: "unannounced", Difficulty: "medium", PrimaryTopic: "y"},
		},
	}
}

func startedService(t *testing.T) *service.Service {
	t.Helper()
	svc := service.New(service.WithSource(fixedSource{catalog: fixture()}))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func resultIDs(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var body types.SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v: %s", err, w.Body.String())
	}
	out := make([]string, len(body.Results))
	for i, e := range body.Results {
		out[i] = string(e.Simulation.ID)
	}
	return out
}

func TestSearchEndpoint(t *testing.T) {
	Convey("Given a router over a loaded catalog", t, func() {
		ctx := context.Background()
		h := api.NewServer(startedService(t)).Router(ctx)

		Convey("When searching without parameters", func() {
			w := serve(h, "/api/simulations")

			Convey("Then every record comes back in catalog order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(cmp.Diff([]string{"1", "2", "3"}, resultIDs(t, w)), ShouldBeEmpty)
			})

			Convey("And scores are not exposed", func() {
				So(w.Body.String(), ShouldNotContainSubstring, "score")
			})
		})

		Convey("When searching by topic", func() {
			w := serve(h, "/api/simulations?topic=x")

			Convey("Then ranks follow the tiered order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(cmp.Diff([]string{"1", "2"}, resultIDs(t, w)), ShouldBeEmpty)

				var body types.SearchResult
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Policy, ShouldEqual, "tiered")
				So(body.Total, ShouldEqual, 2)
				So(body.Results[0].Rank, ShouldEqual, 1)
				So(body.CatalogVersion, ShouldEqual, uint64(1))
			})
		})

		Convey("When values are comma separated or repeated", func() {
			a := serve(h, "/api/simulations?topic=x,y")
			b := serve(h, "/api/simulations?topic=x&topic=y")

			Convey("Then both forms select the same values", func() {
				So(cmp.Diff(resultIDs(t, a), resultIDs(t, b)), ShouldBeEmpty)
			})
		})

		Convey("When a type is named explicitly", func() {
			w := serve(h, "/api/simulations?type=unannounced")

			Convey("Then other types are excluded", func() {
				So(cmp.Diff([]string{"3"}, resultIDs(t, w)), ShouldBeEmpty)
			})
		})

		Convey("When difficulty is present but empty", func() {
			w := serve(h, "/api/simulations?difficulty=")

			Convey("Then nothing survives", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(resultIDs(t, w), ShouldBeEmpty)
				So(w.Body.String(), ShouldContainSubstring, `"results":[]`)
			})
		})

		Convey("When the flat policy is requested", func() {
			w := serve(h, "/api/simulations?role=r1&policy=flat")

			Convey("Then only matching records remain", func() {
				So(cmp.Diff([]string{"1"}, resultIDs(t, w)), ShouldBeEmpty)
			})
		})

		Convey("When an unknown policy is requested", func() {
			w := serve(h, "/api/simulations?policy=loudest")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When a limit is given", func() {
			w := serve(h, "/api/simulations?limit=2")

			Convey("Then the list is truncated but the total kept", func() {
				var body types.SearchResult
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Count, ShouldEqual, 2)
				So(body.Total, ShouldEqual, 3)
			})

			Convey("And invalid limits are rejected", func() {
				for _, bad := range []string{"0", "-1", "abc", "5000"} {
					So(serve(h, "/api/simulations?limit="+bad).Code, ShouldEqual, http.StatusBadRequest)
				}
			})
		})
	})
}

func TestSimulationEndpoints(t *testing.T) {
	Convey("Given a router over a loaded catalog", t, func() {
		h := api.NewServer(startedService(t)).Router(context.Background())

		Convey("When fetching a known record", func() {
			w := serve(h, "/api/simulations/2")

			Convey("Then it is returned in the wire shape", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var sim types.Simulation
				So(json.Unmarshal(w.Body.Bytes(), &sim), ShouldBeNil)
				So(sim.Title, ShouldEqual, "B")
				So(sim.AdditionalSimTopics, ShouldResemble, []string{"x"})
				So(w.Body.String(), ShouldContainSubstring, `"id":2`)
			})
		})

		Convey("When fetching an unknown record", func() {
			w := serve(h, "/api/simulations/99")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, "not_found")
			})
		})

		Convey("When fetching the whole catalog", func() {
			w := serve(h, "/api/all")

			Convey("Then the taxonomy and records are included", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var p types.Payload
				So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
				So(len(p.SimulationTopics), ShouldEqual, 1)
				So(p.SimulationTopics[0].TopicType, ShouldEqual, "Situations")
				So(p.RoleTags, ShouldResemble, []string{"r1"})
				So(len(p.Simulations), ShouldEqual, 3)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a loaded service", t, func() {
		h := api.NewServer(startedService(t)).Router(context.Background())

		Convey("Then /healthz reports ok with the version", func() {
			w := serve(h, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"catalog_version":1`)
		})

		Convey("Then /stats returns JSON", func() {
			w := serve(h, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then /metrics exposes the registry", func() {
			_ = serve(h, "/api/simulations")
			w := serve(h, "/metrics")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "simcat_search_http_requests_total")
		})

		Convey("Then unknown routes are 404 and wrong methods 405", func() {
			So(serve(h, "/api/nope").Code, ShouldEqual, http.StatusNotFound)
			req := httptest.NewRequest(http.MethodPost, "/api/simulations", strings.NewReader("{}"))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a service that has not loaded yet", t, func() {
		svc := service.New(service.WithSource(fixedSource{catalog: fixture()}))
		h := api.NewServer(svc).Router(context.Background())

		Convey("Then health and reads report unavailable", func() {
			So(serve(h, "/healthz").Code, ShouldEqual, http.StatusServiceUnavailable)
			So(serve(h, "/api/all").Code, ShouldEqual, http.StatusServiceUnavailable)
			w := serve(h, "/api/simulations")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "catalog_unavailable")
		})
	})
}

type brokenDeps struct{ *service.Service }

func (brokenDeps) Catalog(context.Context) (model.Catalog, error) {
	return model.Catalog{}, errors.New("disk on fire")
}

func TestInternalErrors(t *testing.T) {
	Convey("Given dependencies that fail unexpectedly", t, func() {
		h := api.NewServer(brokenDeps{startedService(t)}).Router(context.Background())

		Convey("Then the failure is reported as 500 with the op", func() {
			w := serve(h, "/api/all")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "api.get_all: disk on fire")
		})
	})
}

// driftingDeps reports a catalog version and catalog that no longer match
// the snapshot a search ranks.
type driftingDeps struct{ *service.Service }

func (driftingDeps) CatalogVersion() uint64 { return 99 }

func (driftingDeps) Catalog(context.Context) (model.Catalog, error) {
	return model.Catalog{}, errors.New("catalog moved")
}

func TestSearchReadsOneSnapshot(t *testing.T) {
	Convey("Given dependencies whose side reads disagree with the ranked snapshot", t, func() {
		h := api.NewServer(driftingDeps{startedService(t)}).Router(context.Background())

		Convey("When searching", func() {
			w := serve(h, "/api/simulations?topic=x")

			Convey("Then defaults and version come from the ranked snapshot", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(cmp.Diff([]string{"1", "2"}, resultIDs(t, w)), ShouldBeEmpty)

				var body types.SearchResult
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.CatalogVersion, ShouldEqual, uint64(1))
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given op-scoped errors", t, func() {
		cause := errors.New("cause")

		Convey("Then kinds and causes are both matchable", func() {
			err := api.WrapKind("op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: bad request: cause")
		})

		Convey("Then NewKind and Wrap format tersely", func() {
			So(api.NewKind("op", api.ErrNotFound).Error(), ShouldEqual, "op: not found")
			So(api.Wrap("op", cause).Error(), ShouldEqual, "op: cause")
			So(api.Wrap("op", nil), ShouldBeNil)
			So(api.WrapKind("op", api.ErrNotFound, nil), ShouldBeNil)
		})
	})
}
