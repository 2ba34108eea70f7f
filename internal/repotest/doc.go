// Package repotest provides a signed package repository served over
// httptest and a .deb builder for tests.
package repotest
