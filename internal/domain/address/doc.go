// Package address reflects the active tab into an addressable location:
// a "#<notePath>-<tabId>" fragment pushed without navigation, plus the
// document title.
package address
