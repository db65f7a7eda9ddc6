package bot

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"storal-pricer/internal/catalog"
	"storal-pricer/internal/report"
	"storal-pricer/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const exportLimit = 1000

func (b *Bot) handleAdminCommand(req *request, cmd string) {
	if !b.cfg.IsAdmin(req.userID) {
		req.log.Warn("Admin command refused", zap.String("command", cmd))
		b.sendError(req.chatID, "Commande réservée aux administrateurs.")
		return
	}

	switch cmd {
	case "reload":
		b.handleReload(req)
	case "coef":
		b.handleCoefficient(req)
	case "stats":
		b.handleStats(req)
	case "export":
		b.handleExportQuotes(req)
	}
}

func (b *Bot) handleReload(req *request) {
	if err := b.quotes.Reload(req.ctx); err != nil {
		req.log.Error("Manual catalog reload failed", zap.Error(err))
		b.sendError(req.chatID, "Échec du rechargement, le catalogue actuel est conservé.")
		return
	}
	b.sendText(req.chatID, fmt.Sprintf("✅ Catalogue rechargé (version %s).", b.quotes.Version()))
}

func (b *Bot) handleCoefficient(req *request) {
	if b.store == nil {
		b.sendError(req.chatID, "Aucune base de données configurée.")
		return
	}

	args, err := ParseCoefArgs(req.args)
	if err != nil {
		b.sendText(req.chatID, "Utilisation : /coef <modèle> <BASE|LED_ARMS|...> <valeur|reset>")
		return
	}
	if _, err := b.quotes.Catalog().Model(args.ModelID); err != nil {
		b.sendError(req.chatID, fmt.Sprintf("Modèle inconnu : %s", args.ModelID))
		return
	}

	if args.Reset {
		err = b.store.DeleteCoefficientOverride(req.ctx, args.ModelID, args.Option)
		if errors.Is(err, storage.ErrOverrideNotFound) {
			b.sendError(req.chatID, "Aucun coefficient personnalisé à supprimer.")
			return
		}
	} else {
		err = b.store.SetCoefficientOverride(req.ctx, catalog.CoefficientOverride{
			ModelID: args.ModelID,
			Option:  args.Option,
			Value:   args.Value,
		}, req.userID)
	}
	if err != nil {
		req.log.Error("Failed to update coefficient", zap.Error(err))
		b.sendError(req.chatID, "Erreur lors de l'enregistrement du coefficient.")
		return
	}

	if err := b.quotes.Reload(req.ctx); err != nil {
		req.log.Error("Reload after coefficient change failed", zap.Error(err))
		b.sendError(req.chatID, "Coefficient enregistré mais le rechargement a échoué.")
		return
	}

	if args.Reset {
		b.sendText(req.chatID, fmt.Sprintf("✅ %s / %s : coefficient par défaut rétabli.", args.ModelID, args.Option))
		return
	}
	b.sendText(req.chatID, fmt.Sprintf("✅ %s / %s = %.2f", args.ModelID, args.Option, args.Value))
}

func (b *Bot) handleStats(req *request) {
	if b.store == nil {
		b.sendError(req.chatID, "Aucune base de données configurée.")
		return
	}

	stats, err := b.store.QuoteStatistics(req.ctx)
	if err != nil {
		req.log.Error("Failed to get quote statistics", zap.Error(err))
		b.sendError(req.chatID, "Erreur lors de la lecture des statistiques.")
		return
	}

	var top strings.Builder
	for _, m := range stats.TopModels {
		fmt.Fprintf(&top, "• %s : %d\n", m.ModelID, m.Count)
	}

	b.sendText(req.chatID, fmt.Sprintf(
		"📊 Statistiques des devis\n\n"+
			"📌 Total : %d (%s HT)\n"+
			"📅 Aujourd'hui : %d\n"+
			"📅 7 derniers jours : %d\n\n"+
			"🏆 Modèles les plus demandés :\n%s",
		stats.TotalQuotes, FormatEuros(stats.TotalHT),
		stats.TodayQuotes,
		stats.WeekQuotes,
		top.String(),
	))
}

func (b *Bot) handleExportQuotes(req *request) {
	if b.store == nil {
		b.sendError(req.chatID, "Aucune base de données configurée.")
		return
	}

	records, err := b.store.RecentQuotes(req.ctx, exportLimit)
	if err != nil {
		req.log.Error("Failed to load quote log", zap.Error(err))
		b.sendError(req.chatID, "Erreur lors de la lecture du journal.")
		return
	}

	path, err := report.ExportQuoteLog(records, b.reportsDir)
	if err != nil {
		req.log.Error("Failed to export quote log", zap.Error(err))
		b.sendError(req.chatID, "Impossible de générer le fichier Excel.")
		return
	}
	defer os.Remove(path)

	doc := tgbotapi.NewDocument(req.chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("📊 Journal des devis (%d lignes)", len(records))
	b.sendMessage(doc)
}
