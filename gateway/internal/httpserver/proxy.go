package httpserver

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	echo "github.com/labstack/echo/v4"
)

// newProxy forwards to target, rewriting the public path prefix to the
// backend's own prefix. Set-Cookie paths coming back are rewritten the
// other way so httpOnly cookies keep working through the gateway.
func newProxy(target, publicPrefix, backendPrefix string) (echo.HandlerFunc, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	baseTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.Transport = baseTransport

	origDirector := p.Director
	p.Director = func(req *http.Request) {
		originalHost := req.Host
		originalProto := "http"
		if req.TLS != nil {
			originalProto = "https"
		} else if xf := req.Header.Get("X-Forwarded-Proto"); xf != "" {
			originalProto = xf
		}

		origDirector(req)

		if strings.HasPrefix(req.URL.Path, publicPrefix) {
			req.URL.Path = backendPrefix + strings.TrimPrefix(req.URL.Path, publicPrefix)
			if rp := req.URL.RawPath; rp != "" && strings.HasPrefix(rp, publicPrefix) {
				req.URL.RawPath = backendPrefix + strings.TrimPrefix(rp, publicPrefix)
			}
		}

		if req.Header.Get("X-Forwarded-Proto") == "" {
			req.Header.Set("X-Forwarded-Proto", originalProto)
		}
		if req.Header.Get("X-Forwarded-Host") == "" && originalHost != "" {
			req.Header.Set("X-Forwarded-Host", originalHost)
		}
	}

	p.ModifyResponse = func(resp *http.Response) error {
		cookies := resp.Header.Values("Set-Cookie")
		if len(cookies) == 0 {
			return nil
		}
		rewritten := make([]string, len(cookies))
		for i, ck := range cookies {
			rewritten[i] = strings.Replace(ck, "Path="+backendPrefix, "Path="+publicPrefix, 1)
		}
		resp.Header.Del("Set-Cookie")
		for _, ck := range rewritten {
			resp.Header.Add("Set-Cookie", ck)
		}
		return nil
	}

	p.FlushInterval = 100 * time.Millisecond

	return func(c echo.Context) error {
		p.ServeHTTP(c.Response(), c.Request())
		return nil
	}, nil
}
