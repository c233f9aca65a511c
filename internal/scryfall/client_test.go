package scryfall_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardcap/internal/prints"
	"cardcap/internal/scryfall"
)

func TestSearchFollowsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "":
			if got := r.URL.Query().Get("q"); got != `!"Island" unique:art` {
				t.Errorf("unexpected query %q", got)
			}
			if r.URL.Query().Get("order") != "released" || r.URL.Query().Get("dir") != "asc" {
				t.Errorf("expected released/asc ordering, got %q", r.URL.RawQuery)
			}
			fmt.Fprintf(w, `{"data":[{"name":"Island","set":"lea","collector_number":"288","released_at":"1993-08-05","image_uris":{"art_crop":"https://img/lea.jpg"}}],"has_more":true,"next_page":%q}`, server.URL+"/cards/search?page=2")
		case "2":
			_, _ = w.Write([]byte(`{"data":[{"name":"Island","set":"unh","collector_number":"140","illustration_id":"ill","released_at":"2004-11-19","card_faces":[{"type_line":"Basic Land","image_uris":{"art_crop":"https://img/unh.jpg"}}]}],"has_more":false}`))
		default:
			t.Errorf("unexpected page %q", r.URL.RawQuery)
		}
	}))
	t.Cleanup(server.Close)

	client, err := scryfall.New(server.URL, scryfall.WithPageDelay(0))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	records, err := client.SearchPrints(context.Background(), `!"Island" unique:art`)
	if err != nil {
		t.Fatalf("SearchPrints returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records across pages, got %d", len(records))
	}
	if records[0].ArtURL != "https://img/lea.jpg" || records[0].Key() != prints.KeyOf("LEA", "288") {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].ArtURL != "https://img/unh.jpg" || records[1].TypeLine != "Basic Land" || records[1].IllustrationID != "ill" {
		t.Fatalf("card face fallback not applied: %+v", records[1])
	}
}

func TestSearchNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","code":"not_found"}`))
	}))
	t.Cleanup(server.Close)

	client, _ := scryfall.New(server.URL)
	cards, err := client.Search(context.Background(), "!\"Nope\"", scryfall.SearchOptions{})
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected no cards, got %d", len(cards))
	}
}

func TestSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	t.Cleanup(server.Close)

	client, _ := scryfall.New(server.URL)
	_, err := client.Search(context.Background(), "island", scryfall.SearchOptions{})
	var apiErr *scryfall.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests || apiErr.Body != "slow down" {
		t.Fatalf("expected APIError 429, got %v", err)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	client, _ := scryfall.New("")
	if _, err := client.Search(context.Background(), "  ", scryfall.SearchOptions{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestArtForPrint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards/lea/161":
			_, _ = w.Write([]byte(`{"name":"Lightning Bolt","set":"lea","collector_number":"161","type_line":"Instant","image_uris":{"art_crop":"https://img/bolt.jpg"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client, _ := scryfall.New(server.URL)
	artURL, typeLine, err := client.ArtForPrint(context.Background(), "LEA", "161")
	if err != nil {
		t.Fatalf("ArtForPrint returned error: %v", err)
	}
	if artURL != "https://img/bolt.jpg" || typeLine != "Instant" {
		t.Fatalf("unexpected art %q type %q", artURL, typeLine)
	}

	artURL, _, err = client.ArtForPrint(context.Background(), "lea", "999")
	if err != nil || artURL != "" {
		t.Fatalf("missing print should be empty, got %q err %v", artURL, err)
	}
	if _, err := client.CardByPrint(context.Background(), "", "1"); err == nil {
		t.Fatal("expected error for missing set code")
	}
}
