package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kavelar/moviemind/domains/discovery"
	"github.com/kavelar/moviemind/images"
	"github.com/kavelar/moviemind/pkg/utils"
)

type Discovery struct {
	Service  discovery.IDiscoveryUsecase
	Resolver *images.Resolver
}

func InitRestDiscovery(app fiber.Router, service discovery.IDiscoveryUsecase, resolver *images.Resolver) Discovery {
	rest := Discovery{Service: service, Resolver: resolver}
	app.Get("/discovery/trending", rest.Trending)
	app.Get("/discovery/category/:name", rest.Category)
	app.Get("/discovery/search", rest.Search)
	app.Post("/discovery/chat", rest.Chat)
	app.Post("/discovery/refresh/:kind", rest.Refresh)
	return rest
}

func (controller *Discovery) Trending(c *fiber.Ctx) error {
	result := controller.Service.Trending(c.UserContext())

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch trending content",
		Results: newFetchResultView(result, controller.Resolver),
	})
}

func (controller *Discovery) Category(c *fiber.Ctx) error {
	name := c.Params("name")
	result := controller.Service.Category(c.UserContext(), name)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch category content",
		Results: newFetchResultView(result, controller.Resolver),
	})
}

func (controller *Discovery) Search(c *fiber.Ctx) error {
	query := c.Query("q")

	result, err := controller.Service.Search(c.UserContext(), query)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success search content",
		Results: newFetchResultView(result, controller.Resolver),
	})
}

func (controller *Discovery) Chat(c *fiber.Ctx) error {
	var request discovery.ChatRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	reply, err := controller.Service.Chat(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success process chat turn",
		Results: reply,
	})
}

func (controller *Discovery) Refresh(c *fiber.Ctx) error {
	kind := c.Params("kind")
	param := c.Query("param")

	result, err := controller.Service.Refresh(c.UserContext(), kind, param)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success refresh content",
		Results: newFetchResultView(result, controller.Resolver),
	})
}
