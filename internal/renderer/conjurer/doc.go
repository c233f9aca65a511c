// Package conjurer drives a Card Conjurer instance through headless Chrome.
//
// Session implements renderer.Renderer with chromedp. Canvas fingerprints are
// computed in the page so only a short hash crosses the DevTools connection on
// every stabilization poll; the full PNG is transferred once per capture.
package conjurer
