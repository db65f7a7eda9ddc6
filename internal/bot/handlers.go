package bot

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"storal-pricer/internal/catalog"
	"storal-pricer/internal/engine"
	"storal-pricer/internal/report"
	"storal-pricer/internal/storage"
	"storal-pricer/internal/units"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const helpText = `Bonjour ! Je calcule le prix de votre store banne.

/catalogue : les modèles et leurs dimensions
/devis <modèle> <largeur> <avancée> [options] : devis détaillé
/comparer <largeur> <avancée> [options] : tous les modèles possibles
/bras <modèle> <largeur> <avancée> : nombre de bras

Dimensions en cm (450) ou en mètres (4,5m).
Options : led, coffre, lambrequin, lambrequin=enroulable, motorise, pose, couleur, plafond, modeles=kalyo,dynasta

Exemple : /devis kalyo 450 300 led pose`

func splitArgs(s string) []string {
	return strings.Fields(s)
}

func (b *Bot) handleCommand(req *request, cmd string) {
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "start", "aide", "help":
		b.handleHelp(req)
	case "catalogue", "catalog":
		b.handleCatalog(req)
	case "devis", "quote":
		b.handleQuote(req)
	case "comparer", "compare":
		b.handleCompare(req)
	case "bras":
		b.handleArms(req)
	case "reload", "coef", "stats", "export":
		b.handleAdminCommand(req, cmd)
	default:
		b.sendError(req.chatID, "Commande inconnue. Tapez /aide pour la liste des commandes.")
	}
}

func (b *Bot) handleHelp(req *request) {
	msg := tgbotapi.NewMessage(req.chatID, helpText)
	msg.ReplyMarkup = createMainMenuKeyboard()
	b.sendMessage(msg)
}

func (b *Bot) handleCatalog(req *request) {
	b.sendText(req.chatID, catalog.Summary(b.quotes.Catalog()))
}

func (b *Bot) handleQuote(req *request) {
	args, err := ParseQuoteArgs(req.args)
	if err != nil {
		b.sendUsageError(req, err, "/devis <modèle> <largeur> <avancée> [options]")
		return
	}
	b.sendQuote(req, args.ModelID, units.CmToMm(args.WidthCm), units.CmToMm(args.DepthCm), args.Selection.Options)
}

// sendQuote prices one model, sizes in millimetres, and logs the quote.
func (b *Bot) sendQuote(req *request, modelID string, width, projection int, opts engine.Options) {
	q, err := b.quotes.PriceModel(req.ctx, modelID, width, projection, opts)
	if err != nil {
		if f, ok := engine.AsFailure(err); ok {
			req.log.Info("Quote refused",
				zap.String("model_id", modelID),
				zap.String("kind", f.Kind.String()))
			b.sendText(req.chatID, FormatFailure(f))
			return
		}
		req.log.Error("Failed to price model", zap.String("model_id", modelID), zap.Error(err))
		b.sendError(req.chatID, "Erreur lors du calcul du prix.")
		return
	}

	b.sendText(req.chatID, FormatQuote(q))

	if b.store == nil {
		return
	}
	rec := storage.NewQuoteRecord(req.id, req.userID, b.quotes.Version(), q)
	if _, err := b.store.RecordQuote(req.ctx, rec); err != nil {
		req.log.Warn("Failed to record quote", zap.Error(err))
	}
}

func (b *Bot) handleCompare(req *request) {
	args, err := ParseCompareArgs(req.args)
	if err != nil {
		b.sendUsageError(req, err, "/comparer <largeur> <avancée> [options]")
		return
	}

	cmp, err := b.quotes.CompareCm(req.ctx, args.WidthCm, args.DepthCm, args.Selection.Options, args.Selection.Preferred)
	if err != nil {
		req.log.Error("Failed to compare models", zap.Error(err))
		b.sendError(req.chatID, "Erreur lors de la comparaison.")
		return
	}

	msg := tgbotapi.NewMessage(req.chatID, FormatComparison(cmp))
	if len(cmp.Quotes) > 0 {
		msg.ReplyMarkup = createComparisonKeyboard(cmp)
	}
	b.sendMessage(msg)
}

func (b *Bot) exportComparison(req *request, width, projection int, opts engine.Options) {
	cmp, err := b.quotes.Compare(req.ctx, width, projection, opts, nil)
	if err != nil {
		req.log.Error("Failed to compare models", zap.Error(err))
		b.sendError(req.chatID, "Erreur lors de la comparaison.")
		return
	}

	path, err := report.ExportComparison(cmp, b.reportsDir)
	if err != nil {
		req.log.Error("Failed to export comparison", zap.Error(err))
		b.sendError(req.chatID, "Impossible de générer le fichier Excel.")
		return
	}
	defer os.Remove(path)

	doc := tgbotapi.NewDocument(req.chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("📊 Comparatif %sm × %sm", units.FormatMetres(width), units.FormatMetres(projection))
	b.sendMessage(doc)
}

func (b *Bot) handleArms(req *request) {
	args, err := ParseQuoteArgs(req.args)
	if err != nil {
		b.sendUsageError(req, err, "/bras <modèle> <largeur> <avancée>")
		return
	}

	width, projection := units.CmToMm(args.WidthCm), units.CmToMm(args.DepthCm)
	arms, err := b.quotes.ResolveArmCount(args.ModelID, width, projection)
	if err != nil {
		if f, ok := engine.AsFailure(err); ok {
			b.sendText(req.chatID, FormatFailure(f))
			return
		}
		req.log.Error("Failed to resolve arm count", zap.Error(err))
		b.sendError(req.chatID, "Erreur lors du calcul.")
		return
	}

	b.sendText(req.chatID, fmt.Sprintf("🦾 %s en %sm × %sm : %d bras.",
		args.ModelID, units.FormatMetres(width), units.FormatMetres(projection), arms))
}

func (b *Bot) sendUsageError(req *request, err error, usage string) {
	switch {
	case errors.Is(err, ErrMissingArgs):
		b.sendText(req.chatID, "Utilisation : "+usage)
	case errors.Is(err, ErrInvalidSize):
		b.sendError(req.chatID, "Dimension invalide. Indiquez des cm (450) ou des mètres (4,5m).")
	case errors.Is(err, ErrUnknownToken):
		b.sendError(req.chatID, "Option inconnue. Tapez /aide pour la liste des options.")
	default:
		b.sendError(req.chatID, err.Error())
	}
}
