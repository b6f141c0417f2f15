package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/billing"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/dto"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/factory"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/mapper"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/pricing"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/service"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/types"
)

type SubscriptionController struct {
	subscriptionService *service.SubscriptionService
	logger              logrus.FieldLogger
}

func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		logger:              factory.NewModuleLogger("subscriptions-controller"),
	}
}

func (c *SubscriptionController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &dto.HealthResponse{Status: "ok"})
}

func (c *SubscriptionController) ListPlans(ctx echo.Context) error {
	req, err := types.NewListPlansRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid query params")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.subscriptionService.ListPlans(ctx.Request().Context(), req)
	if err != nil {
		c.logger.WithError(err).Error("List plans failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.PlansToResponse(result))
}

func (c *SubscriptionController) QuoteSubscription(ctx echo.Context) error {
	req, err := types.NewQuoteRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.subscriptionService.QuoteSubscription(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Quote subscription failed")
	}

	return ctx.JSON(http.StatusOK, mapper.QuoteToResponse(result))
}

func (c *SubscriptionController) EstimateTax(ctx echo.Context) error {
	req, err := types.NewTaxEstimateRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	estimate, err := c.subscriptionService.EstimateTax(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Tax estimate failed")
	}

	return ctx.JSON(http.StatusOK, mapper.TaxEstimateToResponse(estimate))
}

func (c *SubscriptionController) GetSubscription(ctx echo.Context) error {
	req, err := types.NewGetSubscriptionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	sub, err := c.subscriptionService.GetSubscription(ctx.Request().Context(), req.ID)
	if err != nil {
		return c.writeServiceError(ctx, err, "Get subscription failed")
	}

	return ctx.JSON(http.StatusOK, &dto.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(sub),
	})
}

func (c *SubscriptionController) PreviewVariantChange(ctx echo.Context) error {
	req, err := types.NewVariantChangeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.subscriptionService.PreviewVariantChange(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Variant proration preview failed")
	}

	return ctx.JSON(http.StatusOK, mapper.PreviewToResponse(result))
}

func (c *SubscriptionController) PreviewAddOnChange(ctx echo.Context) error {
	req, err := types.NewAddOnChangeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.subscriptionService.PreviewAddOnChange(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Add-on proration preview failed")
	}

	return ctx.JSON(http.StatusOK, mapper.PreviewToResponse(result))
}

func (c *SubscriptionController) ChangeVariantNow(ctx echo.Context) error {
	req, err := types.NewVariantChangeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.subscriptionService.ChangeVariantNow(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Immediate variant change failed")
	}

	return ctx.JSON(http.StatusOK, mapper.CommitToResponse("Plan updated", result))
}

func (c *SubscriptionController) ChangeAddOnsNow(ctx echo.Context) error {
	req, err := types.NewAddOnChangeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.subscriptionService.ChangeAddOnsNow(ctx.Request().Context(), req)
	if err != nil {
		return c.writeServiceError(ctx, err, "Immediate add-on change failed")
	}

	return ctx.JSON(http.StatusOK, mapper.CommitToResponse("Add-ons updated", result))
}

func (c *SubscriptionController) ScheduleVariantChange(ctx echo.Context) error {
	req, err := types.NewVariantChangeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.subscriptionService.ScheduleVariantChange(ctx.Request().Context(), req); err != nil {
		return c.writeServiceError(ctx, err, "Schedule variant change failed")
	}

	return ctx.JSON(http.StatusOK, &dto.MessageResponse{Message: "Plan change scheduled for next billing"})
}

func (c *SubscriptionController) ScheduleAddOnChange(ctx echo.Context) error {
	req, err := types.NewAddOnChangeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.subscriptionService.ScheduleAddOnChange(ctx.Request().Context(), req); err != nil {
		return c.writeServiceError(ctx, err, "Schedule add-on change failed")
	}

	return ctx.JSON(http.StatusOK, &dto.MessageResponse{Message: "Add-on change scheduled for next billing"})
}

func (c *SubscriptionController) writeServiceError(ctx echo.Context, err error, logMessage string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidFrequency),
		errors.Is(err, pricing.ErrAddOnNotOffered):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubscriptionNotFound),
		errors.Is(err, pricing.ErrVariantNotFound):
		return c.writeError(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, pricing.ErrWithinCutoff),
		errors.Is(err, service.ErrStaleCatalog),
		errors.Is(err, service.ErrPreviewSuperseded):
		return c.writeError(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, billing.ErrInvalidPricingResponse):
		c.logger.WithError(err).Error(logMessage)
		return c.writeError(ctx, http.StatusBadGateway, "billing platform returned an invalid response")
	default:
		c.logger.WithError(err).Error(logMessage)
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *SubscriptionController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &dto.ErrorResponse{Error: message})
}
