package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/kavelar/moviemind/domains/discovery"
	"github.com/kavelar/moviemind/images"
	"github.com/kavelar/moviemind/pkg/utils"
)

type Images struct {
	Generator *images.Generator
	Resolver  *images.Resolver
	client    *fasthttp.Client
	timeout   time.Duration
}

func InitRestImages(app fiber.Router, generator *images.Generator, resolver *images.Resolver, proxyTimeout time.Duration) Images {
	if proxyTimeout <= 0 {
		proxyTimeout = 10 * time.Second
	}
	rest := Images{
		Generator: generator,
		Resolver:  resolver,
		client:    &fasthttp.Client{MaxResponseBodySize: 8 * 1024 * 1024},
		timeout:   proxyTimeout,
	}
	app.Get("/images/placeholder/:seed", rest.Placeholder)
	app.Get("/images/poster", rest.Poster)
	return rest
}

// Placeholder serves the deterministic artwork for a seed. The bytes depend
// only on the seed, so clients may cache them indefinitely.
func (controller *Images) Placeholder(c *fiber.Ctx) error {
	seed, err := strconv.ParseInt(c.Params("seed"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "seed must be an integer",
		})
	}
	return controller.renderPlaceholder(c, seed)
}

// Poster proxies the resolved artwork for an item. Image paths come from a
// generative backend and routinely point nowhere, so any upstream failure
// swaps in the seeded placeholder instead of letting the card render broken.
func (controller *Images) Poster(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "id must be an integer",
		})
	}

	item := discovery.ContentItem{ID: id, PosterPath: c.Query("path")}
	resolved := controller.Resolver.ResolvePoster(item)
	if resolved == controller.Resolver.PlaceholderURL(id) {
		return controller.renderPlaceholder(c, int64(id))
	}

	body, contentType, err := controller.fetchUpstream(resolved)
	if err != nil {
		logrus.WithError(err).WithField("url", resolved).Debug("poster fetch failed, serving placeholder")
		return controller.renderPlaceholder(c, int64(id))
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(body)
}

func (controller *Images) renderPlaceholder(c *fiber.Ctx, seed int64) error {
	data, err := controller.Generator.Render(seed)
	utils.PanicIfNeeded(err)

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400, immutable")
	return c.Send(data)
}

func (controller *Images) fetchUpstream(url string) ([]byte, string, error) {
	status, body, err := controller.client.GetTimeout(nil, url, controller.timeout)
	if err != nil {
		return nil, "", err
	}
	if status != fasthttp.StatusOK {
		return nil, "", fmt.Errorf("upstream status %d", status)
	}

	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("upstream returned %s, not an image", contentType)
	}
	return body, contentType, nil
}
